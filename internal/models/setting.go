package models

// Keys of the settings table.
const (
	SettingHAURL   = "ha_url"
	SettingHAToken = "ha_token"
)
