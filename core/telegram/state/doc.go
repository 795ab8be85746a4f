// Package state provides a lightweight in-memory session store for Telegram
// bots. The session payload is supplied by the application as a type
// parameter, so the package stays domain-agnostic and can be reused across
// bots.
package state
