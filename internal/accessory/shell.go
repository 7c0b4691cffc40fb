package accessory

import (
	"maps"
	"slices"
	"sync"
)

// ServiceKind names a HAP service type.
type ServiceKind string

// Service kinds used by the bridge.
const (
	ServiceAccessoryInformation ServiceKind = "AccessoryInformation"
	ServiceTemperatureSensor    ServiceKind = "TemperatureSensor"
	ServiceHumiditySensor       ServiceKind = "HumiditySensor"
	ServiceLightSensor          ServiceKind = "LightSensor"
	ServiceThermostat           ServiceKind = "Thermostat"
	ServiceTelevision           ServiceKind = "Television"
	ServiceTelevisionSpeaker    ServiceKind = "TelevisionSpeaker"
)

// Service groups the characteristics of one HAP service.
type Service struct {
	Kind ServiceKind
	Name string

	mu    sync.Mutex
	chars []*Characteristic
}

// Characteristic returns the characteristic of the given kind, creating it
// on first use.
func (s *Service) Characteristic(kind CharacteristicKind) *Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chars {
		if c.Kind == kind {
			return c
		}
	}
	c := newCharacteristic(kind)
	s.chars = append(s.chars, c)
	return c
}

// Characteristics returns the characteristics in creation order.
func (s *Service) Characteristics() []*Characteristic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.chars)
}

// Shell is one exposed accessory.
//
// UUID, ExternalID and Category never change after creation. DisplayName
// and Context may be updated on rebind.
type Shell struct {
	UUID       string
	ExternalID string
	Category   Category

	mu          sync.Mutex
	displayName string
	context     map[string]string
	services    []*Service
	onChange    func(*Shell)
}

// NewShell creates an empty shell for a vendor ID. The UUID is derived from
// the ID with UUIDFor.
func NewShell(externalID, displayName string, category Category) *Shell {
	return &Shell{
		UUID:        UUIDFor(externalID),
		ExternalID:  externalID,
		Category:    category,
		displayName: displayName,
		context:     make(map[string]string),
	}
}

// AID returns the HAP accessory ID derived from the UUID.
func (s *Shell) AID() uint64 {
	return AIDFor(s.UUID)
}

// DisplayName returns the name the accessory was registered with.
func (s *Shell) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// SetDisplayName updates the display name.
func (s *Shell) SetDisplayName(name string) {
	s.mu.Lock()
	s.displayName = name
	s.mu.Unlock()
}

// Context returns a copy of the persisted key/value context.
func (s *Shell) Context() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.context)
}

// SetContext stores a context value.
func (s *Shell) SetContext(key, value string) {
	s.mu.Lock()
	if s.context == nil {
		s.context = make(map[string]string)
	}
	s.context[key] = value
	s.mu.Unlock()
}

// OnServicesChanged registers fn to be called when EnsureService adds a
// service. Only one callback is kept.
func (s *Shell) OnServicesChanged(fn func(*Shell)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// EnsureService returns the service of the given kind, creating it with
// name if the shell has none yet. An existing service keeps its name.
func (s *Shell) EnsureService(kind ServiceKind, name string) *Service {
	s.mu.Lock()
	for _, svc := range s.services {
		if svc.Kind == kind {
			s.mu.Unlock()
			return svc
		}
	}
	svc := &Service{Kind: kind, Name: name}
	s.services = append(s.services, svc)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(s)
	}
	return svc
}

// Service returns the service of the given kind if present.
func (s *Shell) Service(kind ServiceKind) (*Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range s.services {
		if svc.Kind == kind {
			return svc, true
		}
	}
	return nil, false
}

// Services returns the services in creation order.
func (s *Shell) Services() []*Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.services)
}

// Info returns the accessory information service.
func (s *Shell) Info() *Service {
	return s.EnsureService(ServiceAccessoryInformation, "")
}

// Information is the content of the accessory information service.
type Information struct {
	Manufacturer     string
	Model            string
	SerialNumber     string
	FirmwareRevision string
}

// SetInformation pushes info onto the information service. Empty fields
// are left untouched.
func (s *Shell) SetInformation(info Information) {
	svc := s.Info()
	for kind, v := range map[CharacteristicKind]string{
		CharManufacturer:     info.Manufacturer,
		CharModel:            info.Model,
		CharSerialNumber:     info.SerialNumber,
		CharFirmwareRevision: info.FirmwareRevision,
	} {
		if v != "" {
			svc.Characteristic(kind).UpdateValue(v)
		}
	}
}
