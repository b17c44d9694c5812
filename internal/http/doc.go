// Package http exposes the portal's JSON API over net/http.
//
// The router serves these endpoints:
//   - POST /sessions issues a session token ({"email","password"}). The token is
//     also surfaced through the X-Session-Token header and a session_token cookie.
//     DELETE /sessions/current revokes the caller's token and clears the cookie.
//   - POST /users registers a student account. GET /users lists accounts for
//     administrators and GET /me returns the caller.
//   - GET /rooms, GET /rooms/status, POST /rooms, PUT /rooms/{id} and
//     GET /rooms/{id}/availability?start=&end= manage the room catalog and
//     answer occupancy questions.
//   - GET|POST /bookings and POST /bookings/{id}/approve|reject handle booking
//     requests and their review.
//   - GET /events?month=YYYY-MM, GET /events/upcoming?category=, POST /events,
//     PUT|DELETE /events/{id} and POST /events/purge manage the events calendar.
//     GET /events.ics exports upcoming events as iCalendar.
//   - GET /study-spots and PUT /study-spots/{id}/occupancy expose study spots.
//   - GET /healthz reports whether the database is reachable.
//
// Login, registration, the calendar feed and the health probe are public
// (see IsPublicRoute); every other route runs behind RequireSession.
// Request and response DTOs live alongside their handlers.
package http
