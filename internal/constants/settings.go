package constants

const (
	// SettingWebDAVConfig is the settings key holding the serialized WebDAV configuration
	SettingWebDAVConfig = "afterglow_webdav_config"
	// SettingLegacyRecords is the settings key of the pre-database flat snapshot
	SettingLegacyRecords = "ethereal_habits_v1_moods"
	// SettingLegacyImported is set once the legacy importer has completed
	SettingLegacyImported = "legacy_imported"

	// WebDAV config fields accepted by the settings command
	FieldURL        = "url"
	FieldUsername   = "username"
	FieldPassword   = "password"
	FieldUseProxy   = "useProxy"
	FieldProxyURL   = "proxyUrl"
	FieldMaxBackups = "maxBackups"
)
