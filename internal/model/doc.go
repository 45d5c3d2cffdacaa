package model

// Package model defines the domain data structures shared across the app:
// download jobs, status enums, and progress events. Structures are designed
// for direct binding in the UI and explicit state transitions.
