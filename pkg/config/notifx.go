package config

// NotifxConfig configures outbound invite delivery.
type NotifxConfig struct {
	EmailProvider string // console | ses
	SMSProvider   string // console | sns
	FromAddress   string
	FromName      string
	SMSSenderID   string
	AWSRegion     string
}

func loadNotifxConfig() NotifxConfig {
	return NotifxConfig{
		EmailProvider: getEnv("NOTIFX_EMAIL_PROVIDER", getEnv("NOTIFX_PROVIDER", "console")),
		SMSProvider:   getEnv("NOTIFX_SMS_PROVIDER", "console"),
		FromAddress:   getEnv("NOTIFX_FROM_ADDRESS", "noreply@propcore.app"),
		FromName:      getEnv("NOTIFX_FROM_NAME", "Propcore"),
		SMSSenderID:   getEnv("NOTIFX_SMS_SENDER_ID", "Propcore"),
		AWSRegion:     getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
	}
}
