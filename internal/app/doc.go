// Package app is the composition root of the dashboard.
//
// Run loads the configuration (a missing API URL stops it before anything
// else starts), opens the log file, builds the session store, the API client
// and the appointment service, and hands them to the terminal UI.
//
//	Run()
//	  ├─> config.Load()          file + BACKOFFICE_* environment
//	  ├─> logging.New()          JSON records to the log file
//	  ├─> api.NewClient()        bearer credentials, one-shot refresh
//	  ├─> appointments.NewService()
//	  └─> ui.Run()               blocks until quit
//
// After login the UI starts the poller, which re-lists the current filter in
// the background. Failed polls back off exponentially up to maxBackoff and
// reset on the next success.
//
// SessionOwner is the one place that logs a user out: both the poller and
// the UI pass every error to Observe, which clears the session once the API
// reports that the credentials could not be renewed.
package app
