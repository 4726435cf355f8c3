// Package optimistic applies feed mutations locally before the server
// confirms them, and reconciles once the server answers.
//
// A mutation goes through four steps:
//  1. The Applier changes the Store synchronously and returns an Intent that
//     knows how to undo exactly that change.
//  2. The Session hands the Intent to an Executor on its own goroutine.
//  3. The executor's error is classified as Confirmed, Rejected or
//     NetworkFailed.
//  4. The Reconciler merges canonical server fields on Confirmed, or applies
//     the Intent's undo and raises an error toast otherwise.
//
// Resolutions may arrive in any order. Each Intent only reverts or merges the
// delta it owns, so unrelated entities and fields are never disturbed.
//
// # Same-field races
//
// Toggling the same like twice before either request resolves is allowed.
// Both toggles apply immediately in event order. A rejected toggle re-applies
// the toggle (it is self-inverse), which yields the state as if the rejected
// toggle had never happened. Server counts are merged only by the last
// in-flight intent on a field, so a confirmation never clobbers a newer local
// toggle.
//
// # Usage
//
//	store := optimistic.NewStore()
//	sess := optimistic.NewSession(store, client,
//	    optimistic.WithFetcher(client),
//	    optimistic.WithNotifier(toasts),
//	)
//	if err := sess.Refresh(ctx); err != nil { ... }
//	p, err := sess.TogglePostLike(ctx, postID)
//	// store already shows the new like state here
//	state, _ := p.Wait(ctx)
package optimistic
