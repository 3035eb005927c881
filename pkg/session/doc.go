/*
Package session serialises navigations that belong to the same session.

A session is identified by the SessionID of a navigation request. The Manager
keeps one reference counted mutex per active session, optionally backed by a
distributed locker so that replicas sharing a store do not interleave, and
records outcomes in the configured store while holding that lock.
*/
package session
