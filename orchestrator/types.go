package orchestrator

import "time"

type Health struct {
	Status    string `json:"status"    validate:"required"`
	Timestamp string `json:"timestamp"`
}

// Page is the paginated list envelope the orchestrator returns for every
// collection endpoint.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"` //nolint:tagliatelle
}

type NodeStatus string

const (
	NodeReady    NodeStatus = "Ready"
	NodeNotReady NodeStatus = "NotReady"
)

type Node struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Status        NodeStatus        `json:"status"`
	Labels        map[string]string `json:"labels,omitempty"`
	LastHeartbeat time.Time         `json:"last_heartbeat"` //nolint:tagliatelle
}

type ContainerState string

const (
	ContainerPending ContainerState = "pending"
	ContainerRunning ContainerState = "running"
	ContainerStopped ContainerState = "stopped"
	ContainerFailed  ContainerState = "failed"
)

type Container struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Image        string         `json:"image"`
	NodeID       string         `json:"node_id"` //nolint:tagliatelle
	DeploymentID string         `json:"deployment_id,omitempty"` //nolint:tagliatelle
	State        ContainerState `json:"state"`
	CreatedAt    time.Time      `json:"created_at"` //nolint:tagliatelle
}

type Deployment struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Image         string    `json:"image"`
	Replicas      int       `json:"replicas"`
	ReadyReplicas int       `json:"ready_replicas"` //nolint:tagliatelle
	CreatedAt     time.Time `json:"created_at"`     //nolint:tagliatelle
}

type ServicePort struct {
	Port       int    `json:"port"`
	TargetPort int    `json:"target_port"` //nolint:tagliatelle
	Protocol   string `json:"protocol"`
}

type Service struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Selector map[string]string `json:"selector"`
	Ports    []ServicePort     `json:"ports"`
}

type Resource string

const (
	ResourceNodes       Resource = "nodes"
	ResourceContainers  Resource = "containers"
	ResourceDeployments Resource = "deployments"
	ResourceServices    Resource = "services"
)

// Resources lists the collections in the order the dashboard presents them.
var Resources = []Resource{ResourceNodes, ResourceContainers, ResourceDeployments, ResourceServices}

// ParseResource accepts only the collections in Resources.
func ParseResource(name string) (Resource, bool) {
	for _, resource := range Resources {
		if string(resource) == name {
			return resource, true
		}
	}

	return "", false
}

func (r Resource) Path() string {
	return "/" + string(r)
}

func (r Resource) Label() string {
	switch r {
	case ResourceNodes:
		return "Nodes"
	case ResourceContainers:
		return "Containers"
	case ResourceDeployments:
		return "Deployments"
	case ResourceServices:
		return "Services"
	default:
		return string(r)
	}
}
