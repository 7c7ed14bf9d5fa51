package model

// System is an equipment profile. Attribute values keep the unit suffix used
// by the report ("0.200W", "2.9dB", "omni.ant") and are never converted.
type System struct {
	Name     string `json:"name"`
	PwrTx    string `json:"pwr_tx"`
	Loss     string `json:"loss"`
	LossPlus string `json:"loss_plus"`
	RxThr    string `json:"rx_thr"`
	AntG     string `json:"ant_g"`
	AntType  string `json:"ant_type"`
}
