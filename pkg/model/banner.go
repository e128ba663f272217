package model

// BannerLevel is the severity of a status banner.
type BannerLevel string

const (
	BannerInfo    BannerLevel = "info"
	BannerSuccess BannerLevel = "success"
	BannerWarning BannerLevel = "warning"
	BannerError   BannerLevel = "error"
)

// Banner is an inline status, warning or error message shown to the user.
type Banner struct {
	Level   BannerLevel `json:"level"`
	Message string      `json:"message"`
}

func Info(msg string) Banner    { return Banner{Level: BannerInfo, Message: msg} }
func Success(msg string) Banner { return Banner{Level: BannerSuccess, Message: msg} }
func Warning(msg string) Banner { return Banner{Level: BannerWarning, Message: msg} }
func Error(msg string) Banner   { return Banner{Level: BannerError, Message: msg} }

// CountBanners returns the number of banners with the given level.
func CountBanners(banners []Banner, level BannerLevel) int {
	n := 0
	for _, b := range banners {
		if b.Level == level {
			n++
		}
	}
	return n
}
