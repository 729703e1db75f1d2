/*
Package lineup turns a stream of typed lines into a serialized sequence of
data events.

A Session reads lines from a source (by default the standard input, through a
line editor when it is a terminal), optionally parses them, and hands each
value to the registered data listeners. At most one input is processed at a
time: while it runs the source is paused, and anything arriving meanwhile, or
while the session is suppressed, is discarded and erased from the recall
history. When processing ends the prompt is shown again, once.

# Usage

	sess, err := lineup.New(lineup.WithParser(parser.Fields))
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	sess.OnData(func(ctx context.Context, v any) error {
		fmt.Println("got", v)
		return nil
	})
	sess.OnError(func(ctx context.Context, err error) {
		log.Println(err)
	})

	if err := sess.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-sess.Done()

# Errors

Parse and listener errors go to the error listeners. A session without error
listeners panics with the error instead, so failures are never silently
dropped. Submitting before Start returns domain.ErrNotStarted; any operation
after Close returns domain.ErrClosed.

# Sources

See package source for the standard stream and terminal sources and package
redis (pkg/adapters/redis) for a Redis-backed one. Package sourcetest offers a
scripted source for tests.
*/
package lineup
