package cli

import (
	"context"
	"log"
	"os"

	"github.com/clinivault/screenauth/internal/netx"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// uploadToPresignedURL is a test seam for the raw PUT upload.
var uploadToPresignedURL = netx.UploadToPresignedURL

// UploadReport pushes a rendered report file into the archive: it asks the
// server for a presigned PUT URL and uploads the file bytes directly to
// object storage.
func (a *App) UploadReport(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Enter path to the report file", os.Stdout)
	if err != nil {
		return err
	}

	data, err := readFile(path)
	if err != nil {
		log.Printf("Could not read file: %s", err.Error())
		return err
	}

	key, url, err := a.api.ReportUploadURL(ctx, a.token)
	if err != nil {
		log.Printf("Could not get upload URL: %s", err.Error())
		return err
	}

	if err := uploadToPresignedURL(url, data); err != nil {
		log.Printf("Upload failed: %s", err.Error())
		return err
	}

	printlnFn("Report archived under key " + key)
	return nil
}

// DownloadReport prints a time-limited link to an archived report.
func (a *App) DownloadReport(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "Enter report key", os.Stdout)
	if err != nil {
		return err
	}

	url, err := a.api.ReportDownloadURL(ctx, a.token, key)
	if err != nil {
		log.Printf("Could not get download URL: %s", err.Error())
		return err
	}

	printlnFn("Download link (valid 15 minutes): " + url)
	return nil
}
