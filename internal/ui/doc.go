// Package ui is the Bubble Tea front end of backoffice.
//
// The root Model switches between four screens: login, the appointment
// board for one day, the create form and a tail of the client log. Network
// work runs in tea.Cmds against appointments.Service; a one second tick
// copies the service snapshot onto the board so updates made by the
// background poller show up without a key press.
//
// Errors reach the user through api.UserMessage. Errors that end the session
// go through Options.OnError, and the UI returns to the login screen with the
// expiry notice.
package ui
