// Package alerts turns an inventory snapshot into expiry notifications.
//
// Evaluate picks out every certificate at warning severity or worse;
// Dispatcher fans the batch out to the channels the operator enabled in
// settings (email, signed webhook, or both). Channel failures are logged and
// reported but never stop the remaining channels from being tried.
package alerts
