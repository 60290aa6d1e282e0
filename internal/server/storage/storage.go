package storage

// Store is the durable record of keywords, alerts, devices, notification
// channels and key/value settings. Implementations serialize writes
// internally; callers never coordinate access themselves.
type Store interface {
	SaveKeyword(kw *Keyword) error
	Keywords() ([]*Keyword, error)
	DeleteKeyword(id string) error

	SaveAlert(alert *Alert) error
	Alerts(limit int) ([]*Alert, error)
	PurgeAlerts() error

	UpsertDevice(device *Device) error
	Devices() ([]*Device, error)

	SaveChannel(channel *Channel) error
	Channels() ([]*Channel, error)
	DeleteChannel(id string) error

	Setting(key string) (string, error)
	PutSetting(key, value string) error
}
