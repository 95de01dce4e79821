// Package etsimport imports KNX ETS project archives (.knxproj).
//
// A .knxproj file is a ZIP container. It holds one project directory with
// the project information document and the installation data document,
// plus the manufacturer catalog (knx_master.xml, M-xxxx/Hardware.xml and
// the application programs). Protected projects wrap the project directory
// in an AES-encrypted nested archive whose password is derived from the one
// typed into ETS (see DerivePassword).
//
// # Usage
//
//	project, err := etsimport.Parse(data, etsimport.Options{
//	    Password: pw,
//	    Language: "de",
//	})
//	switch {
//	case errors.Is(err, etsimport.ErrPasswordRequired):
//	    // ask for a password
//	case err != nil:
//	    return err
//	}
//
// # Resolution
//
// Each DeviceInstance is resolved against its manufacturer's catalog:
// product name and order number, coupler flag, application program,
// communication objects with their flags, numbers and names, and
// parameter values with their display labels. Module instances are
// expanded by substituting their argument values into object names and
// by computing dynamic object numbers from allocators.
//
// Missing or malformed data never aborts an import past the document
// level. Skipped elements and unavailable catalog files are reported in
// Project.Warnings and logged through Options.Logger.
package etsimport
