package services

import (
	"regexp"
	"strings"
)

var (
	slugSpaces = regexp.MustCompile(`\s+`)
	slugStrip  = regexp.MustCompile(`[^\w\-]+`)
	slugDashes = regexp.MustCompile(`\-\-+`)
)

// Slugify lowercases, hyphenates and strips a title the same way the
// durable store's slugs were always built, so old links keep resolving.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugStrip.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return s
}

// CourseSlug builds the canonical slug for a course: the slugified title
// suffixed with the course id, which keeps slugs unique and lets the id
// be recovered from the tail of any slug.
func CourseSlug(title, courseID string) string {
	slug := Slugify(title)
	if slug == "" {
		return courseID
	}
	return slug + "-" + courseID
}

// CourseIDFromSlug recovers the opaque course id from a slug-or-id path
// segment. Ids never contain hyphens, so the last segment is the id.
func CourseIDFromSlug(slugOrID string) string {
	s := strings.TrimSpace(slugOrID)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		return s[i+1:]
	}
	return s
}
