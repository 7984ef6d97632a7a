package ports

import "context"

type ContainerBackupPort interface {
	// Backup copies the container to a timestamped sibling path and
	// returns that path.
	Backup(ctx context.Context, container string) (string, error)
}
