package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"promo-designer/app/controller"
	"promo-designer/app/router"
	"promo-designer/db"
	"promo-designer/designer"
	"promo-designer/repository"
	"promo-designer/service"
)

// sessionTTL is how long an idle designer session survives before reaping
const sessionTTL = 2 * time.Hour

// Initialize initializes the application
func Initialize() error {
	// Initialize database connection
	if err := db.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Get credentials path from environment variable
	credentialsPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credentialsPath == "" {
		return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS environment variable is not set")
	}

	folderID := os.Getenv("ASSET_FOLDER_ID")
	if folderID == "" {
		return fmt.Errorf("ASSET_FOLDER_ID environment variable is not set")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	// Asset storage (uploaded photography + neutral baselines)
	assetStore, err := service.NewDriveAssetStore(credentialsPath, folderID)
	if err != nil {
		return err
	}

	// Color pipeline, overlay cache and variant resolution
	overlayService := service.NewOverlayService()
	overlayCache, err := service.NewOverlayCache(filepath.Join(dataDir, "overlay-cache"))
	if err != nil {
		return err
	}
	resolver := service.NewVariantResolver(assetStore, overlayService, overlayCache)

	// Metadata provider over the repositories
	metadata := service.NewMetadataProvider(
		repository.NewProductRepository(),
		repository.NewColorVariantRepository(),
		repository.NewPrintAreaRepository(),
	)

	// Snapshot persistence and the session manager
	snapshots, err := designer.NewSnapshotStore(filepath.Join(dataDir, "snapshots"))
	if err != nil {
		return err
	}
	manager := designer.NewManager(metadata, resolver, snapshots, sessionTTL)

	// Create controllers
	controllers := &router.Controllers{
		Designer: controller.NewDesignerController(manager, filepath.Join(dataDir, "uploads")),
		Export:   controller.NewExportController(manager, service.NewExportService()),
	}

	// Setup routes using standard http router
	router.SetupRoutes(controllers)

	return nil
}
