// Package contraptions provides placed, resource-holding machines for
// Dragonfly servers.
//
// A contraption sits on a block, owns named resources such as energy and
// territory, and is driven by small reusable behaviours called gadgets:
//   - GrowGadget and DecayGadget change a resource over time
//   - MinMaxGadget clamps a resource into its bounds
//   - ConversionGadget turns inventory items into a resource
//   - MatchGadget checks an inventory against an exact item set
//
// Gadgets are configured per contraption type in properties files and are
// shared by every contraption of that type.
//
// # Quick Start
//
//	mngr, err := contraptions.NewBuilder().
//	    Logger(slog.Default()).
//	    Materials(materials).
//	    Listener(&BlockBridge{}).
//	    Init()
//	if err != nil {
//	    return err
//	}
//	defer mngr.Shutdown()
//
//	report := mngr.LoadPropertiesDir("configs")
//	if !report.OK() {
//	    slog.Warn("some properties were skipped", "error", report.Err())
//	}
//	mngr.LoadContraptions(ctx, contraptions.NewFileStore("contraptions.json.zst"))
//
//	g, err := mngr.Create("coal_generator", contraptions.At("world", 10, 64, -3), nil)
//
// # Properties
//
//	{
//	  "kind": "generator",
//	  "type": "coal_generator",
//	  "grow": {"rate": 0.01},
//	  "minmax": {"min": -100, "max": 100},
//	  "conversion": {"inputs": [{"material": "minecraft:coal", "amount": 1}], "yield": 10}
//	}
//
// YAML files with the same structure are accepted too.
//
// # Concurrency
//
// Every contraption has a single-writer section entered through Exec.
// Scheduled gadgets and host calls (Manager.Interact, Manager.Destroy) go
// through it, so a contraption's resources and reaction logic are never
// touched by two goroutines at once. Contraptions are processed in parallel by the
// scheduler's worker pool.
package contraptions

// Version is the contraptions version.
const Version = "1.0.0"
