package api

// ServiceEntry describes one service registered with the robot directory.
type ServiceEntry struct {
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Authority string `json:"authority,omitempty"`
}

// GetServiceEntryStatus is the application status of GetServiceEntry.
type GetServiceEntryStatus int32

const (
	GetServiceEntryStatusUnknown     GetServiceEntryStatus = 0
	GetServiceEntryStatusOK          GetServiceEntryStatus = 1
	GetServiceEntryStatusNonexistent GetServiceEntryStatus = 2
)

// GetServiceEntryRequest resolves a service by name.
type GetServiceEntryRequest struct {
	RequestEnvelope
	ServiceName string `json:"service_name,omitempty"`
}

// GetServiceEntryResponse carries the resolved entry.
type GetServiceEntryResponse struct {
	ResponseEnvelope
	Status       GetServiceEntryStatus `json:"status,omitempty"`
	ServiceEntry *ServiceEntry         `json:"service_entry,omitempty"`
}

// ListServiceEntriesRequest lists every registered service.
type ListServiceEntriesRequest struct {
	RequestEnvelope
}

// ListServiceEntriesResponse carries all registered services.
type ListServiceEntriesResponse struct {
	ResponseEnvelope
	ServiceEntries []*ServiceEntry `json:"service_entries,omitempty"`
}
