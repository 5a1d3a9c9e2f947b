package scryfall

import "time"

// BulkData is one entry of the upstream bulk-data manifest.
type BulkData struct {
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	DownloadURI string    `json:"download_uri"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type bulkDataList struct {
	Data []BulkData `json:"data"`
}
