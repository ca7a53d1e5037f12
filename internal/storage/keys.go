package storage

const (
	// KeyPrefix namespaces every persisted key.
	KeyPrefix = "linkman:"

	// KeySettings holds the settings singleton.
	KeySettings = KeyPrefix + "settings"
	// KeyCategories holds the category list.
	KeyCategories = KeyPrefix + "categories"
	// KeyLinks holds the link list.
	KeyLinks = KeyPrefix + "links"
	// KeyAppVersion holds the standalone schema version marker.
	KeyAppVersion = KeyPrefix + "app_version"
	// KeyBackup holds the backup snapshot.
	KeyBackup = KeyPrefix + "backup"
)
