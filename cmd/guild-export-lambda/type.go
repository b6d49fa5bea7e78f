package main

type exportRequest struct {
	Token          string   `json:"token"`
	APIURL         string   `json:"api_url"`
	GuildID        string   `json:"guild_id"`
	ChannelID      string   `json:"channel_id"`
	SendVia        string   `json:"send_via"`
	SlackToken     string   `json:"slack_token"`
	FilenameFormat string   `json:"filename_format"`
	DelayMsec      *int     `json:"delay"`
	Categories     []string `json:"categories"`
	S3Bucket       string   `json:"s3_bucket"`
	S3Key          string   `json:"s3_key"`
	From           string   `json:"from"`
	To             []string `json:"to"`
	Subject        string   `json:"subject"`
}
