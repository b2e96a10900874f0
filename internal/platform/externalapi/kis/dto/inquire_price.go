package dto

// InquirePriceResponse is the response of the domestic stock current price inquiry (tr_id FHKST01010100).
// Every numeric field is sent as a string.
type InquirePriceResponse struct {
	RtCd   string              `json:"rt_cd"` // "0" on success
	MsgCd  string              `json:"msg_cd"`
	Msg1   string              `json:"msg1"`
	Output *InquirePriceOutput `json:"output"`
}

// InquirePriceOutput holds the quote fields.
type InquirePriceOutput struct {
	StckPrpr   string `json:"stck_prpr"`      // current price
	PrdyVrss   string `json:"prdy_vrss"`      // change from previous day
	PrdyVrssSn string `json:"prdy_vrss_sign"` // 1 upper limit, 2 up, 3 flat, 4 lower limit, 5 down
	PrdyCtrt   string `json:"prdy_ctrt"`      // change rate (%)
	AcmlVol    string `json:"acml_vol"`       // accumulated volume
	StckOprc   string `json:"stck_oprc"`      // open
	StckHgpr   string `json:"stck_hgpr"`      // high
	StckLwpr   string `json:"stck_lwpr"`      // low
	StckSdpr   string `json:"stck_sdpr"`      // base price (previous close)
	PrdtName   string `json:"prdt_name"`
	HtsKorIsnm string `json:"hts_kor_isnm"`
}
