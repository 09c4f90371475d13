package common

// Record field names shared by the normalizer, the predictor and the HTTP layer.
const (
	FieldItemIdentifier          = "Item Identifier"
	FieldItemIdentifierPrefix    = "Item Identifier Prefix"
	FieldItemFatContent          = "Item Fat Content"
	FieldItemType                = "Item Type"
	FieldItemWeight              = "Item Weight"
	FieldItemVisibility          = "Item Visibility"
	FieldOutletIdentifier        = "Outlet Identifier"
	FieldOutletEstablishmentYear = "Outlet Establishment Year"
	FieldOutletSize              = "Outlet Size"
	FieldOutletLocationType      = "Outlet Location Type"
	FieldOutletType              = "Outlet Type"
	FieldRating                  = "Rating"
	FieldSales                   = "Sales"
)

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvDebug          = "DEBUG"
	EnvHost           = "HOST"
	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvArtifactSource = "ARTIFACT_SOURCE"
	EnvModelPath      = "MODEL_PATH"
	EnvFeaturesPath   = "FEATURES_PATH"
	EnvDataPath       = "DATA_PATH"
	EnvLoadTimeout    = "MODEL_LOAD_TIMEOUT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
)

// Configuration defaults
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 5000
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultArtifactSource = ArtifactSourceFile
	DefaultModelPath      = "backend/model/sales_model.json"
	DefaultFeaturesPath   = "backend/model/features.json"
	DefaultAllowedOrigins = "*"
)

// Artifact sources
const (
	ArtifactSourceFile  = "file"
	ArtifactSourceStore = "store"
)

// Valid categorical values served by the catalog endpoints.
var (
	ItemTypes = []string{
		"Dairy", "Soft Drinks", "Meat", "Fruits and Vegetables",
		"Household", "Baking Goods", "Snack Foods", "Frozen Foods",
		"Breakfast", "Health and Hygiene", "Hard Drinks", "Canned",
		"Breads", "Starchy Foods", "Others", "Seafood",
	}
	OutletTypes         = []string{"Supermarket Type1", "Supermarket Type2", "Supermarket Type3", "Grocery Store"}
	OutletSizes         = []string{"Small", "Medium", "High"}
	OutletLocationTypes = []string{"Tier 1", "Tier 2", "Tier 3"}
	FatContents         = []string{"Low Fat", "Regular"}
)

// Validation constants
const (
	MinPort = 1
	MaxPort = 65535
)
