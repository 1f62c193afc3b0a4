package models

// Court referenced by id from several possibly-inconsistent sources
// (stage-local, tournament-wide, ad hoc). Name resolution falls back
// gracefully, see courts.ResolveCourtName.
type Court struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
