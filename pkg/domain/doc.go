/*
Package domain contains the shared types of the lineup scheduler.

It defines what flows through a session (Input, Parser), who observes it
(DataListener, ErrorListener, Registration), how a session describes itself
(State, Snapshot) and the observability hooks. The package is pure: no I/O,
no goroutines.

# Key Entities

  - Input: A raw line (to be parsed) or an already-parsed value.
  - Registration: The handle returned when a listener is added; used to remove it.
  - State: The scheduler phase (Idle, Suppressing, Processing, Closed).
  - InputError: The error delivered to error listeners when parsing or a data listener fails.
*/
package domain
