/*
Package erasure removes an account's personal data from every system holding it.

A Pipeline runs its Steps in order and returns a retention.ErasureReceipt
recording how much each Step removed.
Steps must tolerate data that is already gone,
since a failed erasure is retried from the first Step.

	p := erasure.New(l,
		pgPurge,
		erasure.NewWebhookStep(endpoint, erasure.ClientCredentials(ctx, id, secret, tokenURL)),
		gcs,
	)
*/
package erasure
