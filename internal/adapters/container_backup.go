package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"module-tool/internal/ports"
)

const DefaultBackupExtension = ".bak"

// ContainerBackupAdapter copies a whole container to a sibling path named
// after the current time. Backups are never pruned or restored here.
type ContainerBackupAdapter struct {
	fs        ports.ArchiveFSPort
	Extension string
	Clock     func() time.Time
}

func NewContainerBackupAdapter(fs ports.ArchiveFSPort, extension string) ContainerBackupAdapter {
	if extension == "" {
		extension = DefaultBackupExtension
	}
	return ContainerBackupAdapter{fs: fs, Extension: extension, Clock: time.Now}
}

func (a ContainerBackupAdapter) Backup(ctx context.Context, container string) (string, error) {
	now := time.Now
	if a.Clock != nil {
		now = a.Clock
	}
	target := fmt.Sprintf("%s-%d%s", container, now().UnixMilli(), a.Extension)
	log.Ctx(ctx).Info().Str("container", container).Str("backup", target).Msg("backing up container")
	if err := a.fs.CopyArchive(container, target); err != nil {
		return "", err
	}
	return target, nil
}

var _ ports.ContainerBackupPort = ContainerBackupAdapter{}
