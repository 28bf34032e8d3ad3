// Package services defines the business logic for conversations, the topic
// catalog, and dashboard statistics. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrTopicNotAvailable indicates that a topic lookup matched nothing:
	// the slug is unknown or the topic is inactive. The bot answers with the
	// "not available yet" message rather than failing.
	ErrTopicNotAvailable = errors.New("topic not available")

	// ErrNoActiveFAQ indicates that a topic exists and is active but has no
	// active FAQ to answer with. The bot substitutes the "coming soon" text.
	ErrNoActiveFAQ = errors.New("topic has no active faq")

	// ErrTopicNotFound indicates that the requested topic row does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrFAQNotFound indicates that the requested FAQ row does not exist.
	ErrFAQNotFound = errors.New("faq not found")

	// ErrUserNotFound indicates that the requested user row does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound indicates that the requested message row does not
	// exist (it may have been trimmed).
	ErrMessageNotFound = errors.New("message not found")

	// ErrSlugTaken is returned when creating or renaming a topic would
	// collide with an existing slug.
	ErrSlugTaken = errors.New("topic slug already in use")
)
