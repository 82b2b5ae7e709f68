// Package server implements the HTTP surface using the Echo framework.
//
// Routes: auth (cookie sessions), users, profiles/resumes/assignments,
// autofill sessions, team messaging, and the websocket endpoints for frame
// streaming and thread feeds. Handlers split by domain: handlers_auth.go,
// handlers_users.go, handlers_profiles.go, handlers_sessions.go,
// handlers_threads.go, handlers_ws.go.
package server
