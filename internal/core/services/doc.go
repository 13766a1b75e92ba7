// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Ingestor turns folder listings and change sets into chunk writes,
// the ChangePoller runs it on an interval, and the KnowledgeBase ties both
// to the admin and search surfaces.
package services
