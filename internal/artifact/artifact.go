package artifact

import "context"

// Identifier names an artifact: a short configuration name and the
// repository coordinate the file is fetched by.
type Identifier struct {
	Name       string
	Coordinate string
}

// DisplayName renders the identifier for humans and for operation records.
func (id Identifier) DisplayName() string {
	if id.Coordinate == "" {
		return id.Name
	}
	return id.Name + " (" + id.Coordinate + ")"
}

// Resolvable is an artifact whose file can be produced on demand. File may
// be long-running (a remote fetch) and honors context cancellation.
type Resolvable interface {
	ID() Identifier
	File(ctx context.Context) (string, error)
}

// resolvable binds an identifier to the repository serving it.
type resolvable struct {
	id   Identifier
	repo Repository
}

// NewResolvable returns a Resolvable fetching the identifier's coordinate
// from the given repository.
func NewResolvable(id Identifier, repo Repository) Resolvable {
	return &resolvable{id: id, repo: repo}
}

func (r *resolvable) ID() Identifier { return r.id }

func (r *resolvable) File(ctx context.Context) (string, error) {
	path, err := r.repo.Fetch(ctx, r.id.Coordinate)
	if err != nil {
		return "", &ResolveError{Artifact: r.id.DisplayName(), Err: err}
	}
	return path, nil
}
