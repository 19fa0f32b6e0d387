package domain

// ServiceID идентификатор бронируемой услуги
type ServiceID string

const (
	ServiceLabTest       ServiceID = "lab_test"
	ServiceVaccination   ServiceID = "vaccination"
	ServiceGrooming      ServiceID = "grooming"
	ServicePhysiotherapy ServiceID = "physiotherapy"
	ServiceImaging       ServiceID = "imaging"
)

// KnownServices все поддерживаемые услуги
var KnownServices = []ServiceID{
	ServiceLabTest,
	ServiceVaccination,
	ServiceGrooming,
	ServicePhysiotherapy,
	ServiceImaging,
}

// IsValid returns true for one of KnownServices
func (s ServiceID) IsValid() bool {
	for _, known := range KnownServices {
		if s == known {
			return true
		}
	}
	return false
}

func (s ServiceID) String() string {
	return string(s)
}
