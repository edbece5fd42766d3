package rpc

// buildCommandTable returns the full command-name -> handler mapping
// (spec.md §6 "Command surface (authoritative names)").
func buildCommandTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"ping":       handlePing,
		"getVersion": handleGetVersion,

		"listDevices":  handleListDevices,
		"openDevice":   handleOpenDevice,
		"closeDevice":  handleCloseDevice,
		"sendHid":      handleSendHid,
		"receiveHid":   handleReceiveHid,
		"transmitApdu": handleTransmitApdu,

		"detectProtocols": handleDetectProtocols,

		"fido2GetInfo":          handleFido2GetInfo,
		"fido2SetPin":           handleFido2SetPin,
		"fido2ChangePin":        handleFido2ChangePin,
		"fido2GetPinRetries":    handleFido2GetPinRetries,
		"fido2ListCredentials":  handleFido2ListCredentials,
		"fido2DeleteCredential": handleFido2DeleteCredential,
		"fido2ResetDevice":      handleFido2ResetDevice,

		"u2fVersion":      handleU2FVersion,
		"u2fRegister":     handleU2FRegister,
		"u2fAuthenticate": handleU2FAuthenticate,

		"pivGetData":           handlePivGetData,
		"pivVerifyPin":         handlePivVerifyPin,
		"pivChangePin":         handlePivChangePin,
		"pivChangePuk":         handlePivChangePuk,
		"pivGenerateKey":       handlePivGenerateKey,
		"pivImportCertificate": handlePivImportCertificate,
		"pivReadCertificate":   handlePivReadCertificate,
		"pivDeleteCertificate": handlePivDeleteCertificate,

		"openpgpSelect":          handleOpenpgpSelect,
		"openpgpReadData":        handleOpenpgpReadData,
		"openpgpChangePin":       handleOpenpgpChangePin,
		"openpgpChangeAdminPin":  handleOpenpgpChangeAdminPin,
		"openpgpImportKey":       handleOpenpgpImportKey,
		"openpgpExportPublicKey": handleOpenpgpExportPublicKey,

		"otpReadSlot":     handleOtpReadSlot,
		"otpWriteSlot":    handleOtpWriteSlot,
		"otpDeleteSlot":   handleOtpDeleteSlot,
		"otpSwapSlots":    handleOtpSwapSlots,
		"otpGenerateSeed": handleOtpGenerateSeed,

		"ndefRead":   handleNdefRead,
		"ndefWrite":  handleNdefWrite,
		"ndefFormat": handleNdefFormat,
	}
}
