// Package webhook provides HTTP webhook delivery with automatic retries.
//
// The sender handles JSON marshaling, optional HMAC-SHA256 signatures and
// exponential backoff. Network errors, 429s and 5xx responses are retried;
// other 4xx responses fail immediately.
//
//	sender := webhook.NewSender()
//	err := sender.Send(ctx, "https://ops.example.com/hooks/certs", event,
//		webhook.WithMaxRetries(3),
//		webhook.WithSignature("shared-secret"),
//	)
package webhook
