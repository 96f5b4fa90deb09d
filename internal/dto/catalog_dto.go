package dto

import "dbquery-be/pkg/copilot/catalog"

type ShowCatalogResponse struct {
	Version  string                 `json:"version"`
	Tables   int                    `json:"tables"`
	Entities []catalog.SchemaEntity `json:"entities"`
}

type RefreshCatalogResponse struct {
	Version  string `json:"version"`
	Entities int    `json:"entities"`
}
