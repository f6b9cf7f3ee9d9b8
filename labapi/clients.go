package labapi

import "context"

type LabClient struct {
	Id            ObjectId `json:"id,omitempty"`
	Name          string   `json:"name"`
	Ruc           string   `json:"ruc"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	Email         string   `json:"email"`
	ContactPerson string   `json:"contact_person"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

type LabClients struct {
	Resource[LabClient]
}

func (c *Client) LabClients() LabClients {
	return LabClients{newResource[LabClient](c, "/api/clients/")}
}

// Search matches on name or RUC and returns at most a handful of clients
func (l LabClients) Search(ctx context.Context, query string) ([]LabClient, error) {
	return search(ctx, l.Resource, query)
}
