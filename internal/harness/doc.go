// Package harness replays telephony scenarios through the call state
// machine and checks the resulting trace.
//
// A scenario seeds a fresh store, then feeds call events, clock advances
// and user dismissals to a machine running on a fake clock with
// sequential call tokens, so the same scenario always yields the same
// trace.
//
// # Scenario Format
//
//	name: duplicate_ringing
//	description: "A second RINGING for the same call shows nothing new"
//	records:
//	  - fullPhoneNumber: "919876543210"
//	    phoneNumber: "9876543210"
//	    name: Asha Rao
//	settings:
//	  show_popup: true
//	platform:
//	  overlay_permission: true
//	steps:
//	  - event: RINGING
//	    number: "+919876543210"
//	  - event: RINGING
//	    number: "+919876543210"
//	  - advance: 1s
//	  - dismiss: true
//	  - event: IDLE
//	assertions:
//	  - type: trace_count
//	    kind: overlay_shown
//	    count: 1
//	  - type: final_state
//	    state: IDLE
//
// Each step does exactly one thing: deliver an event, set the call-service
// number, advance the clock, or dismiss the overlay.
//
// # Assertions
//
//   - trace_contains: a trace entry of kind (and detail, when given) exists
//   - trace_count: kind occurs exactly count times
//   - trace_order: the kinds first occur in the given order
//   - final_state: the machine ends in state
//   - overlay: the attached overlay shows caller, or none when caller is empty
//
// # Golden Files
//
// RunWithGolden compares the trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
