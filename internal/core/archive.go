package core

import (
	"context"
	"fmt"
	"os"

	"tesim/internal/archive"
	archivefs "tesim/internal/archive/fs"
	archivememory "tesim/internal/archive/memory"
	archives3 "tesim/internal/archive/s3"
)

// OpenArchive selects a run-report archive backend using environment
// variables. Defaults to the local filesystem when unset.
//
//	TESIM_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	TESIM_ARCHIVE_FS_ROOT: directory root when driver=fs (default ./rundata)
//	(S3 specific variables documented in the s3 package)
func OpenArchive(ctx context.Context) (archive.Store, error) {
	driver := os.Getenv("TESIM_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(archive.DriverFilesystem)
	}
	switch archive.Driver(driver) {
	case archive.DriverFilesystem:
		return archivefs.New(os.Getenv("TESIM_ARCHIVE_FS_ROOT"))
	case archive.DriverS3:
		return archives3.OpenFromEnv(ctx)
	case archive.DriverMemory:
		return archivememory.New(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
