package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

// List reports the modules installed in a container, ordered by id.
func (s Service) List(ctx context.Context, req ListRequest) (result ListResult, err error) {
	container, err := requirePath(req.Container, "container")
	if err != nil {
		return ListResult{}, err
	}
	if err := s.Archive.Mount(container); err != nil {
		return ListResult{}, err
	}
	defer func() {
		if unmountErr := s.unmountAll(container); unmountErr != nil && err == nil {
			err = unmountErr
		}
	}()

	modules, err := s.Descriptors.ListInstalled(ctx, container)
	if err != nil {
		return ListResult{}, err
	}
	log.Ctx(ctx).Debug().Str("container", container).Int("modules", len(modules)).Msg("listed installed modules")
	return ListResult{Container: container, Modules: modules}, nil
}
