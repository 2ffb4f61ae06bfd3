// Package search implements the book search flow: the HTTP client for the
// search backend, the per-user Controller holding query and result state,
// and the pure view derivation (sorting and pagination) over a result
// snapshot.
//
// # Overview
//
// A search is submitted once and its results are kept as a snapshot.
// Sorting and paging never go back to the backend; they re-derive a View
// from the snapshot:
//
//	ctrl := search.NewController(search.NewClient(), provider)
//	if err := ctrl.SubmitSearch(ctx, "Harry Potter", "", search.StoreAll); err != nil {
//		fmt.Println(search.Describe(err))
//	}
//	ctrl.SetSort(search.SortPriceAsc)
//	ctrl.SetPage(2)
//	view := ctrl.View()
//
// # Concurrency
//
// Every submission takes a sequence number. Only the response carrying the
// latest number may update state, so a slow early response can never
// overwrite a newer one. Clear also advances the sequence.
//
// # Errors
//
// Backend failures are classified as *NetworkError (no response),
// *ServerError (non-2xx status) or *RequestError (anything else).
// Describe turns any of them into a user-facing message.
package search
