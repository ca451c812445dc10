package cache

import "fmt"

// Key schema shared by every collaborator touching a course's cache rows.
// All keys are namespaced by the opaque course id.

func CourseKey(courseID string) string {
	return fmt.Sprintf("course:%s", courseID)
}

func MetaKey(courseID string) string {
	return fmt.Sprintf("course:meta:%s", courseID)
}

func ThumbLockKey(courseID string) string {
	return fmt.Sprintf("course:thumb:lock:%s", courseID)
}

func SearchKey(courseID string) string {
	return fmt.Sprintf("course:search:%s", courseID)
}
