package memorymgr

// baseMainTemplate is the skeleton written for a freshly initialized
// memory tree. A "## Plans" section is added beneath Completed Tasks so
// the first plan.add call against a from-scratch tree has a section to
// target, instead of silently no-oping against a missing one.
const baseMainTemplate = `# Agent Memory - Main Notes

Last Updated: 2025-12-28

## File Index

This section maintains an index of all specialized memory files with descriptions.

### Projects
<!-- Add project files here -->

### Concepts
<!-- Add concept files here -->

### Conversations
<!-- Add conversation files here -->

### Preferences
<!-- Add preference files here -->

---

## Current Goals

<!-- Active goals that the agent is working towards -->

---

## Completed Tasks

<!-- Tasks that have been completed with dates -->

---

## Plans

<!-- Plans tracked as checkable items, distinct from the freeform notes below -->

---

## Future Plans

<!-- Long-term plans and ideas for the future -->

---

## Recent Notes

<!-- Recent session notes and important observations -->

---

## Quick Reference

<!-- Quick access to frequently needed information -->
`
