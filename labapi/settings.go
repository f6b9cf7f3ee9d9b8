package labapi

import "context"

type CompanySettings struct {
	Id      ObjectId `json:"id"`
	Name    string   `json:"company_name"`
	Address string   `json:"company_address"`
	Phone   string   `json:"company_phone"`
	Email   string   `json:"company_email"`
	Ruc     string   `json:"company_ruc"`
}

func (c *Client) CompanySettings(ctx context.Context) (CompanySettings, error) {
	var settings CompanySettings
	err := c.Fetch(ctx, "/api/settings/current/", &settings)
	return settings, err
}
