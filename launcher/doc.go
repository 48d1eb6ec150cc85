// Package launcher implements the cargo heaptrack command.
//
// [NewCommand] parses the command line into a [Plan] and hands it to a
// [Launcher], which builds the selected target with cargo, resolves the
// produced executable and runs it under heaptrack:
//
//	cmd := launcher.NewCommand(launcher.Options{})
//	cmd.SetArgs(launcher.CargoArgs(os.Args[1:]))
//	err := cmd.ExecuteContext(ctx)
//	os.Exit(process.ExitCode(err))
//
// A failed build stops the sequence before heaptrack starts, and the exit
// status of whichever child failed is kept in the returned error.
package launcher
