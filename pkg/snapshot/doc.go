// Package snapshot persists store state to S3.
//
// S3Store writes each snapshot under a unique key and then overwrites a
// fixed "latest" key, which Load reads back on startup. Writer runs uploads
// off the store's goroutine: Notify records the newest state and returns at
// once, and the background loop uploads only the most recent state it has
// seen, so a burst of dispatches costs a single upload.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	sink := snapshot.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "todos/")
//	w := snapshot.NewWriter[todos.State](sink)
//	go w.Run(ctx)
//	store.Subscribe(func() { w.Notify(store.GetState()) })
package snapshot
