package dto

// JobSiteResponse 工地目录条目
type JobSiteResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// QRCodeResult 工地二维码生成结果
type QRCodeResult struct {
	BatchID string `json:"batch_id"`
	URL     string `json:"url"`
	PNG     []byte `json:"-"`
}
