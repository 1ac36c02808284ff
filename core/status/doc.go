// Package status classifies certificates by time to expiry.
//
// Classification is a pure function of (days left, thresholds). It is never
// persisted: every consumer calls Classify on read, so changing thresholds in
// settings is reflected on the next listing without any migration step.
//
//	t := status.Thresholds{Critical: 7, Warning: 14, Notice: 30}
//	status.Classify(5, t)  // StatusCritical
//	status.Classify(20, t) // StatusWarning
//	status.Classify(40, t) // StatusValid
//	status.Classify(-1, t) // StatusExpired
package status
