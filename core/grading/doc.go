// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package grading runs fill-in-the-blank questions.

A question template is an HTML fragment in which every "____" (four
underscores) in text content marks a blank. Templates are sanitised before
they are parsed or rendered; markers inside tags or attribute values are not
blanks.

A [Session] holds the learner's answers for one displayed question. Once every
blank has a non-empty answer the session grades itself, locks, and reports
the outcome to its [Recorder] exactly once. [Session.Reset] re-arms it.
*/
package grading
