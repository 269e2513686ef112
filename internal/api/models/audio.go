package models

// Endpoint represents one output sink known to the sound server.
type Endpoint struct {
	Index     int    `json:"index" example:"52" doc:"Sound server sink index"`
	Name      string `json:"name" example:"alsa_output.usb" doc:"Sink name"`
	State     string `json:"state" example:"RUNNING" doc:"Sink state as reported by the sound server"`
	IsDefault bool   `json:"is_default" example:"true" doc:"Whether this sink is the default output"`
	Synthetic bool   `json:"synthetic" example:"false" doc:"Whether this is a reserved combined or fallback sink"`
}

// EndpointsData lists the sinks currently visible on the sound server.
type EndpointsData struct {
	Endpoints   []Endpoint `json:"endpoints" doc:"Sinks in sound server order"`
	DefaultSink string     `json:"default_sink" example:"auto_combined" doc:"Name of the default sink"`
	Count       int        `json:"count" example:"3" doc:"Number of sinks"`
}

// EndpointsResponse wraps EndpointsData for API responses.
type EndpointsResponse struct {
	Body EndpointsData
}

// SoundCard represents one ALSA sound card.
type SoundCard struct {
	Number int    `json:"number" example:"1" doc:"ALSA card index"`
	ID     string `json:"id" example:"Device" doc:"Card identifier"`
	Name   string `json:"name" example:"USB Audio Device" doc:"Card name"`
	Driver string `json:"driver" example:"USB-Audio" doc:"Kernel driver"`
	IsUSB  bool   `json:"is_usb" example:"true" doc:"Whether the card is USB-attached"`
}

// SoundCardsData lists the detected ALSA sound cards.
type SoundCardsData struct {
	Cards []SoundCard `json:"cards" doc:"Detected sound cards in card order"`
	Count int         `json:"count" example:"2" doc:"Number of cards"`
}

// SoundCardsResponse wraps SoundCardsData for API responses.
type SoundCardsResponse struct {
	Body SoundCardsData
}

// ReconcileData reports the outcome of a manually triggered pass.
type ReconcileData struct {
	Generation uint64   `json:"generation" example:"7" doc:"Monotonic pass generation"`
	Before     []string `json:"before" doc:"Sink names visible before the pass"`
	After      []string `json:"after" doc:"Sink names visible after the pass"`
	Members    []string `json:"members,omitempty" doc:"Members of the combined sink, if one was created"`
	Combined   bool     `json:"combined" example:"true" doc:"Whether a combined sink was created"`
	Stale      bool     `json:"stale" example:"false" doc:"Whether the pass was superseded and skipped its rebuild"`
}

// ReconcileResponse wraps ReconcileData for API responses.
type ReconcileResponse struct {
	Body ReconcileData
}

// StatusData summarizes the routing state of the node.
type StatusData struct {
	ServerName     string `json:"server_name" example:"PulseAudio (on PipeWire 1.2.0)" doc:"Sound server name"`
	DefaultSink    string `json:"default_sink" example:"auto_combined" doc:"Current default sink"`
	EndpointCount  int    `json:"endpoint_count" example:"2" doc:"Real output endpoints (reserved names excluded)"`
	CombinedActive bool   `json:"combined_active" example:"true" doc:"Whether the combined sink currently exists"`
}

// StatusResponse wraps StatusData for API responses.
type StatusResponse struct {
	Body StatusData
}

// VolumeAdjustData reports a manually triggered USB volume adjustment.
type VolumeAdjustData struct {
	Message string `json:"message" example:"USB card volumes adjusted" doc:"Result message"`
}

// VolumeAdjustResponse wraps VolumeAdjustData for API responses.
type VolumeAdjustResponse struct {
	Body VolumeAdjustData
}
