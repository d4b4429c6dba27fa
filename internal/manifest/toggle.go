package manifest

// Enable applies Enable to the stored manifest and stamps the result with level.
func (s *Store) Enable(level Level, req ToggleRequest) (ToggleResult, Change, error) {
	var result ToggleResult
	change, err := s.Update(func(doc *Document) error {
		var err error
		result, err = Enable(doc, req)
		return err
	})
	if err != nil {
		return ToggleResult{}, Change{}, err
	}
	result.Level = level
	if result.AutoRegistered {
		s.log.Info("auto-registered item", "name", req.Name, "type", string(result.Type))
	}
	return result, change, nil
}

// Disable applies Disable to the stored manifest and stamps the result with level.
func (s *Store) Disable(level Level, req ToggleRequest) (ToggleResult, Change, error) {
	var result ToggleResult
	change, err := s.Update(func(doc *Document) error {
		var err error
		result, err = Disable(doc, req)
		return err
	})
	if err != nil {
		return ToggleResult{}, Change{}, err
	}
	result.Level = level
	return result, change, nil
}

// Remove applies Remove to the stored manifest.
func (s *Store) Remove(name string, kind Kind) (RemoveResult, Change, error) {
	var result RemoveResult
	change, err := s.Update(func(doc *Document) error {
		var err error
		result, err = Remove(doc, name, kind)
		return err
	})
	if err != nil {
		return RemoveResult{}, Change{}, err
	}
	return result, change, nil
}

// RemoveBySource applies RemoveBySource to the stored manifest.
func (s *Store) RemoveBySource(source string) (SourceRemoval, Change, error) {
	var result SourceRemoval
	change, err := s.Update(func(doc *Document) error {
		var err error
		result, err = RemoveBySource(doc, source)
		return err
	})
	if err != nil {
		return SourceRemoval{}, Change{}, err
	}
	return result, change, nil
}
