package metrics

// Line markers of the rendered text block. Report lines themselves carry no
// marker so they can be grepped out verbatim.
const (
	// per-target header: "== <target>{labels} run=<id> <seconds>s"
	MarkerHeader = "== "
	// named field: "-- CPU_Load: <value> (<status>)"
	MarkerField = "-- "
	// collection or command failure
	MarkerError = "!! "
)
